// Package redisstore persists job records in Redis, as an alternative to the
// SQLite backend for deployments that already run Redis.
//
// Each job is stored as a JSON string under "<prefix>job:<id>", and the set
// "<prefix>jobs" indexes the ids so the store can be reloaded on startup.
package redisstore
