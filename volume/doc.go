// Package volume implements the assemble phase of dataless volume processing
// and the tree it produces.
//
// The tree is:
//
//	Volume
//	├── Info           (B010)
//	├── Abbreviations  (B030-B035 and any other blockette seen outside a channel epoch)
//	└── Stations       "<network>_<station>"
//	    ├── Epochs     station epoch key -> B050
//	    ├── Comments   comment start key -> B051
//	    └── Channels   "<location>-<channel>"
//	        ├── Comments  comment start key -> B059
//	        └── Epochs    channel start key -> EpochData
//	            ├── Info     B052
//	            ├── Format   B030 in epoch context
//	            ├── Stages   stage sequence -> blockette number -> blockette
//	            └── Misc     any other blockette in epoch context
//
// Epoch keys are canonical timestamps (see package epoch), so ordering the keys
// of any map in the tree as strings gives chronological order.
//
// Basic usage:
//
//	blockettes, err := parser.Parse(lines)
//	if err != nil {
//	    return err
//	}
//	vol, err := volume.Assemble(blockettes)
//	if err != nil {
//	    return err
//	}
//	for _, key := range vol.StationKeys() {
//	    ...
//	}
package volume
