// Package encoder selects the HEVC encoding backend for the host.
//
// It supports:
//   - Apple VideoToolbox hardware encoding on Apple Silicon
//   - Intel Quick Sync hardware encoding on Intel x86 hosts
//   - libx265 software encoding as a universal fallback
//
// Detection runs once per process. A hardware tier is only committed
// after FFmpeg both advertises the encoder and proves it can be invoked;
// any probe failure demotes to the next tier, ending at software.
//
// FFmpeg is required to be installed and available in the system PATH.
package encoder
