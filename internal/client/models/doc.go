// Package models defines the data types exchanged with the FinBroker
// platform API: uploads and moderation summaries.
package models
