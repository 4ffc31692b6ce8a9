// Package gateway holds the repositories of the runtime data written while
// users authenticate: login and verify attempts, rate limits, remembered
// devices, authentication flow contexts, UMA permission tickets and user
// activity.
//
// Rows carrying an expiry are hidden from single-row reads once expired and
// removed by PurgeExpiredData. A NULL expiry never expires.
package gateway
