/*Package markduplicates implements the concurrent, lock-free
duplicate-marking engine: a pipeline.Filter that classifies every primary,
mapped alignment as unique or duplicate by a position-and-strand
fingerprint, the way a run of Picard MarkDuplicates would, but without ever
taking a lock.

Duplicate Marking Concepts:

Two alignments A and B are considered duplicates if their library, reference,
unclipped 5' position, and strand are all identical. Two pairs are
duplicates of each other if each pair's left-by-position mate is a duplicate
of the other's left mate, and likewise for the right mates.

A "true fragment" is a primary, mapped alignment whose mate is unmapped or
absent; a "true pair" is a primary, mapped alignment whose mate is also
mapped. A true fragment can be a duplicate of another true fragment, or can
lose to a true pair that happens to share its fingerprint (a mapped mate
always outranks an absent one), but two true fragments that are each half of
a true pair are compared as pairs, not as fragments.

Engine:

Engine holds two classification maps (plus the pair rendezvous map described
below): fragments, keyed by (library, refid,
adapted position, strand), and pairs, keyed by the same four fields for
both mates of a pair (ordered by position so a pair and its mate-swapped
duplicate hash identically). Each map entry is a handle: an atomically
swappable "best candidate seen so far" slot.

Classifying an alignment against a map is a compare-and-swap retry loop: read
the current best candidate, compare scores (sum of Phred-qualifying base
qualities, 33-subtracted, floor 15), and either mark the incoming alignment
duplicate (it loses), attempt to CAS itself into the slot and mark the
evicted candidate duplicate (it wins), or retry (lost the race to another
goroutine's CAS). A tied score is broken by the lexicographically greater
qname losing in deterministic mode, chosen arbitrarily (whichever goroutine's
CAS lands first) in nondeterministic mode. An iteration either returns
(after marking an alignment duplicate or performing a successful CAS) or,
after a failed CAS, reloads the slot another goroutine just replaced and
goes round again.

Matching up pairs of mates within a single concurrent pass (rather than a
pre-sorted, shard-local one) uses a separate rendezvous map keyed by
(library, qname): the first mate to arrive stores itself and waits; the
second mate to arrive claims (atomically loads-and-deletes) the first mate's
slot and proceeds to classify the completed pair. A true fragment never
touches this map.

The engine is a pure streaming filter: it only ever sets the duplicate flag
bit, never clears it, and always keeps every alignment — removal, if
requested, is a separate filter.FilterDuplicateReads stage downstream.
*/
package markduplicates
