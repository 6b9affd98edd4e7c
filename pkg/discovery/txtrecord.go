package discovery

import (
	"fmt"
	"strconv"
	"strings"
)

// TXTRecordMap is a map of TXT record key-value pairs.
type TXTRecordMap map[string]string

// EncodeBrokerTXT creates TXT records for broker discovery.
func EncodeBrokerTXT(info *BrokerInfo) TXTRecordMap {
	txt := make(TXTRecordMap)

	// Required fields
	txt[TXTKeyClusterID] = info.ClusterID
	txt[TXTKeyName] = info.Name

	// Optional fields
	if info.Version != "" {
		txt[TXTKeyVersion] = info.Version
	}
	if info.MaxPayload > 0 {
		txt[TXTKeyMaxPayload] = strconv.FormatUint(uint64(info.MaxPayload), 10)
	}

	return txt
}

// DecodeBrokerTXT parses TXT records from broker discovery.
func DecodeBrokerTXT(txt TXTRecordMap) (*BrokerInfo, error) {
	info := &BrokerInfo{}

	// Parse cluster ID (required)
	var ok bool
	info.ClusterID, ok = txt[TXTKeyClusterID]
	if !ok || len(info.ClusterID) != ClusterIDLength {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyClusterID)
	}
	if !isHexString(info.ClusterID) {
		return nil, fmt.Errorf("%w: invalid cluster ID format", ErrInvalidTXTRecord)
	}

	// Parse broker name (required)
	info.Name, ok = txt[TXTKeyName]
	if !ok || info.Name == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingRequired, TXTKeyName)
	}

	// Optional fields
	info.Version = txt[TXTKeyVersion]

	if mpStr, ok := txt[TXTKeyMaxPayload]; ok {
		mp, err := strconv.ParseUint(mpStr, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid max payload %q", ErrInvalidTXTRecord, mpStr)
		}
		info.MaxPayload = uint32(mp)
	}

	return info, nil
}

// TXTRecordsToStrings converts a TXTRecordMap to a slice of "key=value" strings.
// This format is commonly used by mDNS libraries.
func TXTRecordsToStrings(txt TXTRecordMap) []string {
	result := make([]string, 0, len(txt))
	for k, v := range txt {
		result = append(result, fmt.Sprintf("%s=%s", k, v))
	}
	return result
}

// StringsToTXTRecords parses a slice of "key=value" strings into a TXTRecordMap.
func StringsToTXTRecords(strs []string) TXTRecordMap {
	txt := make(TXTRecordMap)
	for _, s := range strs {
		parts := strings.SplitN(s, "=", 2)
		if len(parts) == 2 {
			txt[parts[0]] = parts[1]
		} else if len(parts) == 1 && parts[0] != "" {
			// Key without value (boolean flag)
			txt[parts[0]] = ""
		}
	}
	return txt
}

// ValidateInstanceName checks if an instance name is valid for mDNS.
func ValidateInstanceName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInstanceNameTooLong)
	}
	if len(name) > MaxInstanceNameLen {
		return ErrInstanceNameTooLong
	}
	return nil
}

// isHexString reports whether s consists only of hex digits.
func isHexString(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
