/*
Package domain contains the core types of the step playback engine.

It is kept pure and free of I/O so that generators, controllers, renderers and
adapters can share the same vocabulary without import cycles.

# Key Entities

  - Step: an immutable snapshot of simulated program state (variables, output, phase, lanes).
  - ScenarioSpec: the serializable description of which construct is demonstrated.
  - Playback: the controller-owned position, playing flag, speed and status.
  - Session: the persisted pairing of a scenario and its playback state.
*/
package domain
