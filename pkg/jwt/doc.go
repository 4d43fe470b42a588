// Package jwt signs and validates the board's RS256 bearer tokens.
//
// Tokens are minted outside the server (cmd/dev-token) and carry the user
// id as the subject plus a display name and role:
//
//	svc, err := jwt.NewService(jwt.Config{
//	    PrivateKeyPath: "keys/private.pem",
//	    Issuer:         "lfg.forgo.software",
//	    ExpirationMins: 60,
//	})
//	token, err := svc.Sign(jwt.Claims{
//	    RegisteredClaims: gojwt.RegisteredClaims{Subject: userID},
//	    Name:             "Aino",
//	    Role:             "user",
//	})
//
// A server configured with only the public key validates but cannot sign.
package jwt
