// Package scheduler registers and drives recurring jobs.
//
// # Overview
//
// A job pairs a timing rule with a zero-argument callback. Two rule kinds
// exist: interval rules (an anchor start time plus a step, either a
// calendar expression like "2days" or a fixed duration) and cron rules
// (crontab expressions, see internal/cronexpr). Jobs are appended to a
// Service during a single-threaded registration phase, then armed together
// by StartAll.
//
// # Re-arming discipline
//
// Each job owns a one-shot timer. On expiry the driver first computes and
// arms the next deadline, then dispatches the callback; the callback's
// fate (slow, panicking, whatever) never affects the schedule. The next
// deadline derives from the previous un-jittered deadline so configured
// jitter does not accumulate into drift. If the computed deadline is not
// in the future - a callback overran its period - missed periods are
// skipped, never fired as a burst.
//
// # Clock seam
//
// Drivers touch time only through the Clock interface (Now plus a one-shot
// AfterFunc). Tests substitute a manual clock via WithClock.
package scheduler
