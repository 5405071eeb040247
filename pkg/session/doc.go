/*
Package session implements session management and persistence orchestration.

Manager serializes access to one session across goroutines (and, with a distributed
locker, across replicas) in front of a ports.SessionStore. Hub builds on it: it keeps
one live playback.Controller per session in this process, applies commands to it,
persists every change and fans changes out to listeners such as SSE streams.

Sessions found in the store but not in memory (after a restart, or created by another
replica) are revived paused at their stored index.
*/
package session
