// Package main is the entry point of partdesk, the sparepart inventory back office.
// It runs the fiber web service with role based access control: a compiled-in
// permission catalog, roles stored with gorm, signed session tokens and a login
// rate limiter.
package main
