// Package files models the file-valued arguments of build rules and the
// filesystem an apply handler works against.
//
// A Set is the union of file paths a build node reads or writes; it drives
// staleness detection. A System performs filesystem operations for real or,
// in dry mode, only logs what it would have done.
package files
