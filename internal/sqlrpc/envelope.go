// Package sqlrpc talks to the remote data service: a JSON-RPC endpoint that
// runs SQL through named tools and answers with either plain JSON or a
// Server-Sent-Events stream.
package sqlrpc

const (
	// MethodToolsCall is the only JSON-RPC method the remote service exposes.
	MethodToolsCall = "tools/call"

	// ToolRunSQL executes SQL against the managed database.
	ToolRunSQL = "DATABASES_RUN_SQL"

	// ToolCallIntegration routes a nested tool call through an integration.
	ToolCallIntegration = "INTEGRATIONS_CALL_TOOL"

	jsonRPCVersion = "2.0"
)

// Request is the JSON-RPC envelope posted to the remote service.
type Request struct {
	Method  string `json:"method"`
	Params  Params `json:"params"`
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
}

// Params names the tool to call and carries its arguments.
type Params struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

// SQLArguments are the arguments of a DATABASES_RUN_SQL call.
type SQLArguments struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

// IntegrationArguments wrap a tool call routed through an integration.
type IntegrationArguments struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Arguments SQLArguments `json:"arguments"`
}

// RunSQL builds a direct DATABASES_RUN_SQL call.
func RunSQL(sql string, params ...any) Request {
	return newRequest(ToolRunSQL, sqlArguments(sql, params))
}

// RunSQLVia builds a DATABASES_RUN_SQL call routed through the integration
// identified by integrationID.
func RunSQLVia(integrationID, sql string, params ...any) Request {
	return newRequest(ToolCallIntegration, IntegrationArguments{
		ID:        integrationID,
		Name:      ToolRunSQL,
		Arguments: sqlArguments(sql, params),
	})
}

// ResultPath returns where the row-set lives in the response to r.
// Routed calls add one structuredContent level per hop.
func (r Request) ResultPath() Path {
	if r.Params.Name == ToolCallIntegration {
		return PathRouted
	}
	return PathDirect
}

// Tool returns the tool name of the envelope.
func (r Request) Tool() string {
	return r.Params.Name
}

func newRequest(tool string, args any) Request {
	return Request{
		Method:  MethodToolsCall,
		Params:  Params{Name: tool, Arguments: args},
		JSONRPC: jsonRPCVersion,
		ID:      1,
	}
}

func sqlArguments(sql string, params []any) SQLArguments {
	if params == nil {
		params = []any{}
	}
	return SQLArguments{SQL: sql, Params: params}
}
