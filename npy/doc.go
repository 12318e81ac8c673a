// Package npy reads and writes NumPy .npy arrays of the dtypes hit tables
// use: little-endian float32 ("<f4"), int32 ("<i4") and int64 ("<i8").
//
// Format versions 1.0, 2.0 and 3.0 are read; 1.0 is written unless the
// header does not fit, in which case 2.0 is used. Fortran-ordered arrays are
// rejected.
package npy
