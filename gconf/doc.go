/*
Package gconf implements a configuration store intended to be used as a
singleton, in-database configuration.

A configuration is read once from the genesis document, validated and
persisted under a key derived from the owning package name. Components load
it from the store they are bound to.
*/
package gconf
