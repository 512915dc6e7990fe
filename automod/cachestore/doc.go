// Automod component for caching arbitrary data (as JSON strings) with a fixed TTL and purging.
//
// Includes an interface and implementations using redis and in-process memory.
//
// This is used in front of guild config reads, which happen on every member join, to reduce load on the SQL database.
package cachestore
