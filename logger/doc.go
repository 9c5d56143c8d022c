// Package logger provides structured logging backed by zerolog.
//
// A single global logger is initialized at startup from config; packages
// derive component-tagged children via WithComponent. Fields are passed as
// maps or built with the Fields helper.
package logger
