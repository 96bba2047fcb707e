// Package events decouples the notification dispatcher from reminder
// delivery. The dispatcher emits one ReminderEvent per user per cycle;
// delivery transports (a bot, a mailer, a test recorder) register as
// handlers without the dispatcher knowing about them.
package events
