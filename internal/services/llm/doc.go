// Package llm talks to an OpenAI-compatible chat-completion endpoint to
// latinize track titles and album names.
//
// # Entry Points
//
// NewClient: construct a client from Config.
// Client.Fetch: send one request and return the raw Exchange.
// Client.Latinize: Fetch followed by Parse; used per batch item.
// Parse: extract title_latin/album_latin from a raw response body.
//
// # Request
//
// The user prompt is the configured template with {title} and {album}
// replaced. The body is {"model","messages":[system,user],"stream":false,
// "temperature":0.2}; an API key, when set, is sent as a bearer token.
//
// # Errors
//
// Every error carries one of the services markers: ErrConfiguration for an
// empty endpoint, ErrCancelled when the caller's context ends, ErrNetwork for
// transport failures, ErrHTTPStatus (wrapping *HTTPStatusError with a body
// snippet) for non-2xx replies, and ErrParse when no field can be extracted.
//
// # Retries
//
// There are none. Each call sends exactly one request. RequestsPerMinute only
// paces requests through a rate limiter whose wait honours cancellation.
package llm
