// Package users implements a small user-account service: registration,
// login, logout, status lookup, and listing of users. Credentials live in a
// relational users table; sessions are asserted with signed bearer tokens
// carrying the account email.
package users
