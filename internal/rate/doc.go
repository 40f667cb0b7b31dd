// Package rate throttles failed logins with Redis fixed-window counters.
//
// Each failure runs INCR on a key and sets EXPIRE when the key is new. A window
// is over once the key expires. Keys:
//   - <prefix>:lt:<identifier>  failed logins per identifier
//   - <prefix>:lti:<ip>         failed logins per client IP (optional)
package rate
