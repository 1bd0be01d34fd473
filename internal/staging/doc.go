// Package staging removes abandoned in-progress packages.
//
// Packages are written to a hidden ".<name>.partial.torrent" file and renamed
// into place once complete. A run killed mid-write leaves that file behind;
// when its item is processed again the partial is replaced, but items whose
// source disappeared would keep it forever. CleanStale sweeps the output roots
// at the start of each run.
package staging
