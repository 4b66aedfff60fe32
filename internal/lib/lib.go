// Package lib groups the notification plumbing that sits outside the ledger
// layers: the Resend email client (lib/email) and the asynq reminder and
// alert jobs (lib/job).
package lib
