package keyvault

// Full-strength scrypt takes around a second per derivation which makes the
// suite crawl. The lighter work factor changes nothing about the code paths
// under test.
func init() {
	scryptN = 1 << 12
}
