// Command vscan submits local videos to the violence classification service
// and manages the shared settings file used by the desktop app.
package main
