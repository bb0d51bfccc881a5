// Package wasmbuild assembles small core WebAssembly binaries: function
// types, function imports, one linear memory, exports, code and active
// data segments. It is used to synthesize guest modules in tests.
package wasmbuild
