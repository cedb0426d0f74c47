package constants

const (
	// TokenType for Bearer authentication
	TokenType = "Bearer"

	// AuthHeaderName is the name of the Authorization header
	AuthHeaderName = "Authorization"

	// AuthHeaderPrefix is the prefix for the Authorization header value
	AuthHeaderPrefix = "Bearer "

	// TokenQueryParam is the query parameter name for token
	TokenQueryParam = "token"

	// Realm advertised in WWW-Authenticate challenges
	Realm = "social-connect"
)

// CORS defaults
var (
	AllowedMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	AllowedHeaders = []string{"Content-Type", "Authorization", "Mcp-Session-Id"}
	ExposedHeaders = []string{"Mcp-Session-Id", "WWW-Authenticate"}
)
