// Package devstub is a self-contained development server that emulates the
// platform endpoints the client talks to: login, the staged upload
// lifecycle, protected static delivery and the moderation feed.
//
// Everything is held in memory. The stub exists so the client can be
// exercised end to end without the real platform; it is not a production
// server.
package devstub
