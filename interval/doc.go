/*Package interval holds the recovered-sequence track: genomic intervals
  named by gene, kept in the order they were produced, and written as a
  space-separated BED4-like table.
  Coordinates are 0-based and half-open, as in BED files; the track never
  merges touching or overlapping rows.
*/
package interval
