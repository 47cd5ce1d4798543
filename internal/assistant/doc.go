// Package assistant triages unread Gmail into four tiers and acts on each.
//
// Tiers:
//
//	1 escalate  VIP or urgent mail; starred, labelled, and forwarded to the owner as a notification
//	2 handle    automated mail such as receipts and newsletters; labelled and archived
//	3 draft     direct questions or requests; an LLM-written reply is left as a Gmail draft
//	4 flag      everything else; labelled for a human to look at
//
// Classification is rule based first. Only when the rules are unsure (their
// confidence is below the configured threshold) is the LLM asked, and a bad
// or failed LLM answer falls back to the rule result.
//
// Processed message IDs are kept in a JSON state file so a message is acted
// on once, and entries older than the retention window are pruned each run.
package assistant
