// Package ynab is a client for the YNAB API v1.
//
// Every response is wrapped in a {"data": ...} envelope which the client
// unwraps. Amounts are Milliunits. Deleted records returned by the API are
// filtered out.
package ynab
