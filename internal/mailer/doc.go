// Package mailer delivers the owner notifications, daily review and reply
// confirmations through Amazon SES or the Gmail API.
package mailer
