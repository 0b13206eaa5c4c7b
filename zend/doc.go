// Package zend implements a Zend-style scripting engine object model and the
// bridge that exposes Go functions, classes, enums, and constants to it.
//
// This package contains:
//   - Tagged value cells (Zval) with refcounted string/array/object payloads
//   - The insertion-ordered hash table and its array bridge
//   - Interned and regular engine strings
//   - Class entries, object handlers, and the class-object overlay that
//     stores a native Go struct inside an engine-managed heap object
//   - Argument parsing for native call handlers
//   - Builders for function, class, enum, and module registration
//   - Executor globals: class/function/constant tables and the
//     pending-exception slot
package zend
