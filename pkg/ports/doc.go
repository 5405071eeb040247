/*
Package ports defines the driven ports (interfaces) for stepper.

These interfaces decouple sessions and playback from external implementations, so the
same hub can persist to memory, disk or Redis and read lessons from any catalog.

# Key Interfaces

  - SessionStore: persists and loads domain.Session snapshots.
  - DistributedLocker: coordinates access to one session across replicas.
  - LessonCatalog: lists and loads lessons (a scenario plus teaching notes).
*/
package ports
