// Package gmail provides a client for the parts of the Gmail API autopilot
// uses: listing and reading messages, labelling, drafting replies, and
// sending mail.
//
// Messages are flattened into Email values with a plain-text body so the
// classifier and reply parser never deal with MIME trees.
//
// Example usage:
//
//	client, err := gmail.NewClient(ctx, option.WithHTTPClient(httpClient))
//	if err != nil {
//	    return err
//	}
//
//	msgs, err := client.ListMessages(ctx, "in:inbox is:unread", 25)
//	if err != nil {
//	    return err
//	}
//	for _, m := range msgs {
//	    email, err := client.GetEmail(ctx, m.Id)
//	    ...
//	}
package gmail
