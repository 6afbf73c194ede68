package model

// Pairing is the bidirectional association between a locally issued token and
// the provider access token obtained for it. It is persisted as two
// directional entries (local -> provider and provider -> local) that are
// always created and deleted together.
type Pairing struct {
	LocalToken    string
	ProviderToken string
}

// Session is a resolved bearer credential: the local token presented by the
// caller together with the provider token it maps to. The provider token is
// attached to the request context for downstream use and never leaves the
// process.
type Session struct {
	LocalToken    string
	ProviderToken string
}
