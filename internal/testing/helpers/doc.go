// Package helpers provides test utility functions for the board's handlers.
//
// # JWT Helpers
//
// Mint tokens for fixture users:
//
//	jwtHelper := helpers.NewJWTHelper(t)
//	token := jwtHelper.GenerateToken(t, user)
//
// # Request Helpers
//
//	req := helpers.NewRequest(t, http.MethodPost, "/v1/posts").
//		WithAuth(jwtHelper, user).
//		WithBody(body).
//		Build()
//	rec := helpers.Serve(mux, req)
//
// # Assertion Helpers
//
//	helpers.AssertProblemDetails(t, rec, http.StatusForbidden, model.ErrCodeNotOwner)
//	helpers.AssertRedirect(t, rec, "/")
//	helpers.AssertHTML(t, rec, "Raid 1")
package helpers
