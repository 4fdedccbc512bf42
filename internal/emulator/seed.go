package emulator

import "github.com/hyperengineering/waypoint/internal/roadmap"

// DefaultFeatures is the roadmap loaded into an empty emulator database.
// Statuses use the spellings found in real data so normalization is exercised.
var DefaultFeatures = []roadmap.Feature{
	{Title: "Dark mode", Description: "A dark theme for the dashboard and docs.", RawStatus: "Priority", Upvotes: 42, Category: "ui", IsPriority: true},
	{Title: "Keyboard shortcuts", Description: "Navigate the board without a mouse.", RawStatus: "planned", Upvotes: 17, Category: "ui"},
	{Title: "CSV export", Description: "Download roadmap and suggestions as CSV.", RawStatus: "In Progress", Upvotes: 23, Category: "data"},
	{Title: "Webhooks", Description: "Notify external systems when a feature ships.", RawStatus: "Under Review", Upvotes: 11, Category: "integrations"},
	{Title: "Single sign-on", Description: "SAML and OIDC login for teams.", RawStatus: "Done", Upvotes: 58, Category: "auth"},
	{Title: "Public changelog", Description: "A page listing released features by date.", RawStatus: "released", Upvotes: 9, Category: "docs"},
	{Title: "Offline mode", Description: "Read the roadmap without a connection.", RawStatus: "backlog", Upvotes: 0, Category: "core"},
}
