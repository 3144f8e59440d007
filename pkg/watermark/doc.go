// Package watermark stores the identifier of the newest post already imported.
//
// The file holds nothing but the decimal identifier, no trailing newline:
//
//	$ cat ~/Dropbox/Journal.dayone/tweets_last_id.txt
//	1234567890123456789
//
// A missing file reads as 0. Writes go to a temporary file in the same
// directory and are renamed into place.
package watermark
