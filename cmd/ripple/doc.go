// Command ripple downloads media items from configured sources, optionally
// transcodes them, and files them into a library.
package main
