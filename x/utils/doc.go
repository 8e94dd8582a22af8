/*
Package utils provides the decorators shared by every handler of the
application: panic recovery, logging, savepoints and action tags.
*/
package utils
