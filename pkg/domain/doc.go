/*
Package domain contains the core models of the mlens step engine.

It defines the trace a visualisation is scrubbed through, the read-only view a
navigator exposes to renderers, and the sentinel errors shared by every trace
builder. This package is kept pure and free of I/O, following Hexagonal
Architecture principles.

# Key Entities

  - Step: One entry of a trace. A complete state snapshot paired with its narration.
  - Frame: The pure state half of a step, produced by simulation before narration.
  - View: A snapshot of a navigator (status, index, current step) for renderers.
  - Source: The seeded randomness and identifier sequence owned by one configuration.
  - Meta: Descriptive metadata of an algorithm plug-in.
*/
package domain
