// Package services contains the application services of the FinBroker
// client: the staged-upload lifecycle and the moderation pending-count
// poller. Services call the platform through the api.Gateway and never
// retry on their own; retry is a user-initiated re-submit.
package services
