package roadmap

// SQL sent to the remote data service. Placeholders are positional.
const (
	SuggestionsTable = "feature_suggestions"
	FeaturesTable    = "roadmap_features"

	InsertSuggestionSQL = `INSERT INTO feature_suggestions (title, description, email) VALUES (?, ?, ?) RETURNING id`

	UpvoteSQL = `UPDATE roadmap_features SET upvotes = upvotes + 1, updated_at = CURRENT_TIMESTAMP WHERE id = ? RETURNING id, upvotes`

	// The CASE guard keeps upvotes at zero or above; the floor is enforced by
	// the database, not computed here.
	DownvoteSQL = `UPDATE roadmap_features SET upvotes = CASE WHEN upvotes > 0 THEN upvotes - 1 ELSE 0 END, updated_at = CURRENT_TIMESTAMP WHERE id = ? RETURNING id, upvotes`

	ListFeaturesSQL = `SELECT * FROM roadmap_features ORDER BY upvotes DESC, id ASC`
)

// voteSQL returns the statement for action, or false for unknown actions.
func voteSQL(action VoteAction) (string, bool) {
	switch action {
	case ActionUpvote:
		return UpvoteSQL, true
	case ActionDownvote:
		return DownvoteSQL, true
	default:
		return "", false
	}
}
