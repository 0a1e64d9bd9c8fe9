// Package client is the terminal client's view of the shop-admin REST API.
//
// A Client is bound to one session.Store. Login stores the issued token in
// the session; every later request picks it up through session.Transport.
// A 401 on any call other than login clears the session, so the next
// command routes the user back to login.
package client
