// Package task owns all timing in the system. The Dispatcher runs two
// gocron jobs against the scheduling engine: a daily reminder cycle at
// the configured notification time and a periodic overdue check. Each
// cycle sweeps expired intraday entries first, then reads the due set
// and emits one ReminderEvent per user. The engine itself never starts
// timers.
package task
