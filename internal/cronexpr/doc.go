// Package cronexpr parses 5-field crontab expressions and computes the
// next matching instant.
//
// # Grammar
//
// Five whitespace-separated fields: minute (0-59), hour (0-23),
// day-of-month (1-31), month (1-12), day-of-week (0-7, Sunday is 0 and 7).
// Each field accepts:
//
//	*          any value
//	5          a single value
//	1,15,30    a list
//	1-5        a range
//	1-59/2     a stepped range
//	*/15       a stepped full range
//
// Month and day-of-week also accept three-letter names (jan..dec,
// sun..sat). The day-of-month field accepts the literal "l" meaning the
// last day of the month. Named aliases expand before parsing:
//
//	@yearly @annually   0 0 1 1 *
//	@monthly            0 0 1 * *
//	@weekly             0 0 * * 0
//	@daily @midnight    0 0 * * *
//	@hourly             0 * * * *
//
// When both day-of-month and day-of-week are constrained, a day matches if
// either field matches (classic crontab OR semantics).
package cronexpr
