// Package authbridge implements the client-side authentication bridge used by
// the mobile applications: it observes an external identity provider, exchanges
// short-lived identity tokens for backend session tokens, persists the
// resulting session as a paired record, and routes freshly authenticated users
// through the onboarding flow.
//
// The entry point for most consumers is the coordinator package, wired with a
// store.KV implementation, an idp.Client and a client.Backend.
package authbridge
