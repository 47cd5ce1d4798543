package google

import gmail "google.golang.org/api/gmail/v1"

// DefaultOAuthScopes are the scopes the provisioned token must carry.
//
//   - modify: read messages, change labels, create drafts
//   - send: owner notifications and review emails when mail.provider is gmail
var DefaultOAuthScopes = []string{
	gmail.GmailModifyScope,
	gmail.GmailSendScope,
}
