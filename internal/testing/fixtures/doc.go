// Package fixtures provides test data for the board.
//
// Builders (User, Admin, Character, Post) return valid unsaved models with
// unique ids and names and accept option functions:
//
//	owner := fixtures.User()
//	c := fixtures.Character(owner.ID, fixtures.WithGems(10, 20))
//
// Factory persists the same models through any repository backend:
//
//	f := &fixtures.Factory{Users: store.Users, Characters: store.Characters, Posts: store.Posts}
//	user := f.CreateUser(t)
//	post := f.CreatePost(t, user)
package fixtures
