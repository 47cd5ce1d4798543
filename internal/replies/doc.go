// Package replies turns replies to the daily review email into Todoist
// changes.
//
// A reply holds one command per line, for example:
//
//	done 1 3
//	defer 2 to friday
//	p1 4
//	add Call the plumber due tomorrow
//
// Numbers refer to the items of the last review sent. Quoted text and
// signatures are ignored.
package replies
