// Package rewards tracks credit-card rewards against YNAB spending.
//
// Each card has a base earn rate and optional per-category multipliers, plus
// a point value in cents. The effective return of a card for a category is
// rate × point value, so a 3x card with 1.5¢ points returns 4.5% on that
// category.
//
// Transactions are mapped to reward categories with rules: payee substrings
// first, then YNAB category names. Anything unmatched is "other" and earns
// the base rate.
//
// All arithmetic is done with shopspring/decimal; amounts are rounded to
// cents only when formatted.
package rewards
