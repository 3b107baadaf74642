package models

// ToolConnection links a tenant to an external productivity system the
// Tool Adapter Framework can invoke on its behalf.
type ToolConnection struct {
	ID             string
	TenantID       string
	ProviderName   string // e.g. "task-tracker", "notes", "code-host", "chat-poster"
	DisplayName    string
	EncryptedConfig []byte
	Enabled        bool
}
