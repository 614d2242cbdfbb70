package ports

// TokenKind discriminates the two credential types. A token of one kind never
// verifies as the other: the kinds are signed with distinct secrets and carry
// a typ claim.
type TokenKind string

const (
	TokenAccess  TokenKind = "access"
	TokenRefresh TokenKind = "refresh"
)

// TokenIssuer mints and verifies the signed, time-bound session credentials.
// Signing is stateless; persistence of the refresh slot is the repository's
// concern.
type TokenIssuer interface {
	IssueAccessToken(userID, username string) (string, error)
	IssueRefreshToken(userID string) (string, error)
	// Verify checks signature, expiry, and kind, returning the subject user
	// id or domain.ErrInvalidToken.
	Verify(token string, kind TokenKind) (string, error)
}
