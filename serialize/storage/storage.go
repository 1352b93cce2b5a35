package storage

/*
Records kept in the local database. All integers are big-endian.

KeyRecord
+-----------+--------+----------+-----------+
|  Version  |  Algo  |  Sealed  |  Created  |
+-----------+-+------+----------+-----------+
|  AliasL     |          Alias              |
+-------------+-----------------------------+
|  PubL       |          Pub                |
+-------------+-----------------------------+
|  KeyL         |        Key                |
+---------------+---------------------------+
(bytes)
Version         1
Algo            1
Sealed          1
Created         8
Alias length    1
Alias           -
Pub length      2
Pub             -
Key length      4
Key             -   raw private key, or the sealed JSON document when Sealed is 1


ForeignKey
+-----------+--------------+---------+
|  Version  |  CanEncrypt  |  Added  |
+-----------+-+------------+---------+
|  AliasL     |        Alias         |
+-------------+----------------------+
|  PubL       |        Pub           |
+-------------+----------------------+
|  DescL      |     Description      |
+-------------+----------------------+
(bytes)
Version             1
CanEncrypt          1
Added               8
Alias length        1
Alias               -
Pub length          2
Pub                 -
Description length  2
Description         -


ChainBlock
+-----------------------+
|      (cp.Block)       |
+-----------------------+
|       Received        |
+-----------------------+
(bytes)
Received        8
*/

const (
	// StorageV1 is the version 1 of the record layouts
	StorageV1 = 1
)
