// Package vocab maps corpus tokens to dense integer ids and back. Ids are
// assigned in first-occurrence order, which keeps vocabulary construction
// deterministic and lets an id double as a row offset into feature and
// embedding matrices.
package vocab
