/*
Package ports defines the interfaces between the mlens core and its plug-ins and adapters.

# Key Interfaces

  - Definition: A typed algorithm plug-in (config, initial step, trace builder).
  - Algorithm: The type-erased form of a Definition, stored in the registry.
  - Session: A navigator over one algorithm instance, as seen by adapters.
  - TraceCache: Optional storage for built traces (memory, Redis).
*/
package ports
